// Package search keeps a search engine consistent with relational rows and
// queries it.
//
// An Index owns one engine index per entity type. It is built from a
// Descriptor that names the searchable fields and supplies a pure Flatten
// projection:
//
//	brands, err := search.NewIndex(catalog.BrandDescriptor(), engine, brandRepo,
//		search.WithAspects(aspects),
//		search.WithIndexPrefix("shelflink_"),
//	)
//
// Single document writes (IndexEntity, RemoveEntity) log and swallow engine
// failures so that an index outage never fails the relational write that
// triggered it. Store reindexing and searches return their errors; use
// IsEngineError to tell an engine outage apart from bad input.
//
// A Manager fans reindexing and global searches out across every
// registered index.
package search
