// Package toolset exposes the script-execution, export, introspection,
// environment, and part-library operations as a registered tool catalog
// with name-based dispatch.
//
// Tools are registered in a discovery index under the "cad" namespace with
// documentation entries, so the catalog is searchable and describable like
// any other tool surface. Call failures carry stable error codes; see Code
// for the classification.
package toolset
