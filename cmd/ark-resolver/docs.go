// Package docs provides OpenAPI documentation for the ARK root resolver API
//
//	@title			ARK Root Resolver API
//	@version		0.1
//	@description	Redirect service for ARK persistent identifiers.
//	@description	Requests for ark: identifiers are matched against the public NAAN
//	@description	registry and redirected to the resolver registered for the longest
//	@description	matching NAAN prefix. The cached registry document and the derived
//	@description	resolver map are also served for inspection.
//
//	@contact.url	https://arks.org
//
//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@tag.name	resolution
//	@tag.description	ARK identifier resolution and redirects
//
//	@tag.name	registry
//	@tag.description	Registry cache and resolver map data
//
//	@tag.name	system
//	@tag.description	System health and version information
package main
