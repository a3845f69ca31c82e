// Package connectors holds the sources campaign records are read from.
// The filesystem connector reads the collection pipeline's JSON and YAML
// output; others implement driven.CampaignSource the same way.
package connectors
