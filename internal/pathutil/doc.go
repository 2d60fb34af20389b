// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

// Package pathutil provides path helpers for document traversal.
//
// The primary type is [PathBuilder], which uses push/pop semantics to track
// the location of the current node while walking a document tree. Segments
// are kept unescaped and only rendered as a JSON Pointer when a caller asks
// for one, typically when a reference is found.
//
// # PathBuilder Usage
//
// Use [Get] to obtain a pooled PathBuilder, and [Put] to return it:
//
//	path := pathutil.Get()
//	defer pathutil.Put(path)
//
//	path.Push("definitions")
//	path.Push(name)
//	// ... recurse ...
//	path.Pop()
//	path.Pop()
//
//	if isRef {
//	    refs[path.Pointer()] = value
//	}
//
// Sequence indices are supported via [PathBuilder.PushIndex]:
//
//	path.Push("allOf")
//	path.PushIndex(0) // "/allOf/0"
//
// # Output Path Sanitization
//
// [SanitizeOutputPath] validates and cleans output file paths for security.
// It rejects symlinks:
//
//	safe, err := pathutil.SanitizeOutputPath(userProvidedPath)
//	if err != nil {
//	    return err
//	}
package pathutil
