// Package crawler implements the contact-harvesting engine: URL candidate resolution
// per domain, one concurrent crawl task per domain, and aggregation of records and
// failures into the run's output collections.
package crawler
