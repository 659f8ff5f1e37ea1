// Package racing holds what the extractors share: the error taxonomy, the
// racecourse code table and the two-method Extractor contract.
package racing
