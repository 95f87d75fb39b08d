// Package scrape defines the core types and interfaces for the SimplyHired
// harvesting pipeline: search queries, fetch results, listing/detail records,
// the persisted job schema, and the collaborator contracts the worker loop
// depends on.
package scrape
