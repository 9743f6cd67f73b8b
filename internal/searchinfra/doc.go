// Package searchinfra holds the search engine adapters: Elasticsearch for
// production and an in-process engine for development and tests.
package searchinfra
