// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package prismic

import "strings"

// Predicate is a single Prismic query condition, e.g. at(document.type, "posts").
type Predicate struct {
	name  string
	path  string
	value string
}

// At matches documents whose field at path equals value.
func At(path, value string) Predicate {
	return Predicate{name: "at", path: path, value: value}
}

// String renders the predicate in Prismic query syntax.
func (p Predicate) String() string {
	return "[" + p.name + "(" + p.path + ", " + quote(p.value) + ")]"
}

// Query renders predicates as the value of the q parameter.
func Query(predicates ...Predicate) string {
	var sb strings.Builder
	sb.WriteString("[")
	for _, p := range predicates {
		sb.WriteString(p.String())
	}
	sb.WriteString("]")
	return sb.String()
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
