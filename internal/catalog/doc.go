// Package catalog provides read-only product search and lookup over the
// store. Search matches name and description case-insensitively, filters
// out-of-stock products by default, and clamps the result limit.
package catalog
