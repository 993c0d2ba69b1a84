// Package appfeatures describes the capabilities a radio driver resolves
// at startup. The central consults these to decide, for example, whether
// a connection-interval update must be synthesized after a priority
// request.
package appfeatures

import (
	"fmt"
	"strings"
)

// Features describes the features of a radio driver.
type Features uint

// The different kinds of individual features.
const (
	FeatureNone       Features = 0 // The zero value for this type.
	FeatureScanning            = 1 << iota
	FeatureConnection
	FeatureTransferSizeRequest
	FeatureConnectionUpdates
	FeatureReliableWrites
)

// FeatureMap holds a list of descriptions for each feature.
var FeatureMap = map[Features]string{
	FeatureScanning:            "Device Discovery",
	FeatureConnection:          "GATT Connection",
	FeatureTransferSizeRequest: "ATT Transfer Size Negotiation",
	FeatureConnectionUpdates:   "Connection Interval Updates",
	FeatureReliableWrites:      "Reliable Write Batches",
}

// Add adds the provided features to the existing features.
func (c *Features) Add(features ...Features) {
	for _, f := range features {
		*c |= f
	}
}

// String converts a set of features to a comma-separated string of
// their respective descriptions.
func (c Features) String() string {
	s := make([]string, 0, len(FeatureMap))

	for feature, title := range FeatureMap {
		if c&feature != 0 {
			s = append(s, title)
		}
	}

	return strings.Join(s, ", ")
}

// Slice returns a slice of individual features.
func (c Features) Slice() []Features {
	s := make([]Features, 0, len(FeatureMap))

	for feature := range FeatureMap {
		if c&feature != 0 {
			s = append(s, feature)
		}
	}

	return s
}

// FeatureSet holds all supported features and feature related errors.
type FeatureSet struct {
	Supported Features
	Errors    Errors
}

// NewFeatureSet returns a new set (of features).
func NewFeatureSet(features Features, errors Errors) *FeatureSet {
	return &FeatureSet{
		Supported: features,
		Errors:    errors,
	}
}

// Has returns if the feature set has all of the provided features.
func (c *FeatureSet) Has(compare ...Features) bool {
	var compared int

	for _, toCompare := range compare {
		if c.Supported&toCompare != 0 {
			compared++
		}
	}

	return compared > 0 && compared == len(compare)
}

// Error describes an error which occurred while attempting
// to enable support for the specified feature.
type Error struct {
	Feature       Features
	FeatureErrors error
}

// Errors holds a list of feature based errors.
type Errors struct {
	errors map[Features]Error
}

// NewError returns a feature-based Error.
func NewError(c Features, err error) *Error {
	return &Error{
		Feature:       c,
		FeatureErrors: err,
	}
}

// Append appends a single feature error to the feature error list.
func (c *Errors) Append(e *Error) {
	if c.errors == nil {
		c.errors = make(map[Features]Error)
	}

	c.errors[e.Feature] = *e
}

// Exists checks and returns all feature based errors.
func (c *Errors) Exists() (map[Features]Error, bool) {
	return c.errors, c.errors != nil
}

// Error returns a text representation of the feature error.
func (c *Error) Error() string {
	return fmt.Sprintf(
		"Capabilities '%s' cannot be activated: %s",
		c.Feature.String(), c.FeatureErrors,
	)
}
