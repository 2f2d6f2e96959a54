// Package shl provides a resumable crawler for the SHL product catalog.
// It walks the catalog's two sections (pre-packaged job solutions and
// individual test solutions), extracts one structured record per assessment,
// enriches each record from its detail page, and persists both the dataset
// and crawl progress so that interruption never loses work and never
// reprocesses completed work.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, goquery/, sqlite/). The
// downstream recommendation pipeline consumes the dataset file produced
// here; it is not part of this module.
package shl

// Default endpoints for the SHL product catalog.
const (
	DefaultBaseURL    = "https://www.shl.com"
	DefaultCatalogURL = "https://www.shl.com/solutions/products/product-catalog/"
)

// ItemPathPattern is the URL path fragment shared by every assessment
// detail page. Anchors and sitemap entries are recognized as catalog items
// by this marker.
const ItemPathPattern = "/solutions/products/"
