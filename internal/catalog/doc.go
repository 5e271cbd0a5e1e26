// Package catalog talks to the Shopify Admin GraphQL API.
//
// It lists recently updated products with their images and media types,
// writes the namespaced status metafield, requests staged upload targets,
// pushes GLB bytes to those targets, and attaches uploaded models to products
// as MODEL_3D media. Every non-2xx response, GraphQL error list, or non-empty
// user error list is returned as a typed error.
package catalog
