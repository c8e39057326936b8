package query

import (
	"fmt"
)

// DefaultBucketType is used by namespaces created without an explicit bucket type
const DefaultBucketType = "default"

// --------------------------------------------------------------------------
// Namespace
// --------------------------------------------------------------------------

// Namespace identifies a keyspace: a bucket type together with a bucket name.
// Namespaces are immutable values and can be compared with ==.
type Namespace struct {
	BucketType string `json:"bucket_type"`
	Bucket     string `json:"bucket"`
}

// NewNamespace creates a namespace for the given bucket type and bucket.
// An empty bucket type is replaced by DefaultBucketType.
func NewNamespace(bucketType, bucket string) Namespace {
	if bucketType == "" {
		bucketType = DefaultBucketType
	}
	return Namespace{BucketType: bucketType, Bucket: bucket}
}

// NewDefaultNamespace creates a namespace in the default bucket type
func NewDefaultNamespace(bucket string) Namespace {
	return NewNamespace(DefaultBucketType, bucket)
}

// Validate returns an error if the namespace can not address a keyspace
func (ns Namespace) Validate() error {
	if ns.BucketType == "" {
		return fmt.Errorf("namespace: bucket type must not be empty")
	}
	if ns.Bucket == "" {
		return fmt.Errorf("namespace: bucket must not be empty")
	}
	return nil
}

// IsZero reports whether the namespace was never set
func (ns Namespace) IsZero() bool {
	return ns.BucketType == "" && ns.Bucket == ""
}

func (ns Namespace) String() string {
	return fmt.Sprintf("{type: %s, bucket: %s}", ns.BucketType, ns.Bucket)
}

// --------------------------------------------------------------------------
// Location
// --------------------------------------------------------------------------

// Location addresses a single value: a key inside a namespace
type Location struct {
	Namespace Namespace `json:"namespace"`
	Key       string    `json:"key"`
}

// NewLocation creates a location for key in ns
func NewLocation(ns Namespace, key string) Location {
	return Location{Namespace: ns, Key: key}
}

// Validate returns an error if the location is incomplete
func (l Location) Validate() error {
	if err := l.Namespace.Validate(); err != nil {
		return err
	}
	if l.Key == "" {
		return fmt.Errorf("location: key must not be empty")
	}
	return nil
}

// IsZero reports whether the location was never set
func (l Location) IsZero() bool {
	return l.Namespace.IsZero() && l.Key == ""
}

func (l Location) String() string {
	return fmt.Sprintf("{type: %s, bucket: %s, key: %s}", l.Namespace.BucketType, l.Namespace.Bucket, l.Key)
}
