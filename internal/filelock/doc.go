// Package filelock tracks which worker currently owns a file path.
//
// Batch and inbox conversions run several workers at once. Before a worker
// reads an export or writes an XML document it claims the path in a shared
// [Registry]; a second worker asking for the same path gets
// [errors.ErrAlreadyClaimed] instead of racing the first one. Claims are
// advisory and live only in memory.
//
// # Basic Usage
//
//	reg := filelock.NewRegistry()
//
//	if err := reg.Claim(runID, "/out/mzdy.xml"); err != nil {
//	    return err // another job writes the same file
//	}
//	defer reg.Release(runID, "/out/mzdy.xml")
//
//	owner, ok := reg.Owner("/out/mzdy.xml")
package filelock
