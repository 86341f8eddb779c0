package util

import (
	"log"
	"runtime"
)

// LogMemory logs heap usage after the named phase.
func LogMemory(phase string) {
	s := &runtime.MemStats{}
	runtime.ReadMemStats(s)
	log.Printf("*** Memory after %s ***", phase)
	log.Println("Heap Allocated InUse:\t", s.HeapAlloc)
	log.Println("Heap Objects:\t\t", s.HeapObjects)
	log.Println("Mallocs/Frees:\t\t", s.Mallocs, s.Frees)
	log.Println("GC Cycles:\t\t", s.NumGC)
}
