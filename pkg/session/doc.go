/*
Package session serializes remediation sessions that target the same workload.

A Manager hands out one in-process lock per key (namespace/deployment), garbage
collected by reference counting, and can additionally take a distributed lock so
replicas behind a load balancer do not repair the same workload concurrently.
*/
package session
