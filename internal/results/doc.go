// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package results holds the records a sweep produces: typed scalar values,
// ordered named fields, immutable data points and the append-only collector
// they accumulate in.
//
// A DataPoint is never mutated after it has been appended. Readers that need
// a stable snapshot while a sweep is still running take a View.
package results
