package main

import "github.com/ValentinKolb/dCMD/cmd"

func main() {
	cmd.Execute()
}
