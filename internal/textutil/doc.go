// Package textutil pulls typed tokens out of the free-form labels found on
// JRA and netkeiba pages.
//
// Labels such as "5回東京5日", "2023年11月26日（日曜）" or "15時40分" are
// decomposed with independent captures, each of which must match exactly
// once. Helpers here are pure and never touch the network.
package textutil
