/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

const (
	DefaultBaseURL = "https://jeo.letz.dev/api/"

	CategoriesEndpoint = "categories"
	DetailsEndpoint    = "details/"
)
