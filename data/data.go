// Package data holds the FAQ and alert files shipped with the binary.
package data

import _ "embed"

//go:embed faqs.yaml
var FAQs []byte

//go:embed alerts.yaml
var Alerts []byte
