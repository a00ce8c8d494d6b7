/*
Package contacts persists the contact changes produced by a run.

The interpreter only classifies the contact (Added, Modified, Deleted); the Manager
turns that classification into store writes, serializing writes to the same contact
within the process and, optionally, across replicas through a ports.DistributedLocker.
*/
package contacts
