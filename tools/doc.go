// Package tools implements the primary agent's builtin tool surface.
//
// Tools are split into a read class (Read, Glob, Grep, WebFetch) and a
// write class (Write, Bash). The session factory excludes the write class
// when a request runs without write access; the permission layer denies
// them again at execution time as a second line.
package tools
