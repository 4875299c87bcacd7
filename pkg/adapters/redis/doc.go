// Package redis provides Redis-backed run storage and distributed locking.
package redis
