// Package openapi derives survey definitions from OpenAPI 3 operations. The
// request body schema of an operation becomes the question list: enums turn
// into dropdowns or checkboxes, booleans into yes/no questions and nested
// objects into panels.
package openapi
