// Package serialization implements the .nnet model file format.
//
// The format is a single-version binary layout with a checksummed data section:
//
//	Format Structure:
//	  [0x00-0x03: Magic "NNET"]
//	  [0x04-0x07: Version (uint32 LE)]
//	  [0x08-0x0B: Flags (uint32 LE)]
//	  [0x0C-0x0F: Reserved]
//	  [0x10-0x17: Header Size (uint64 LE)]
//	  [0x18-0x1F: Data Size (uint64 LE)]
//	  [0x20-0x3F: SHA-256 of the data section]
//	  [Header: JSON metadata]
//	  [Padding to a 64-byte boundary]
//	  [Tensor data: float64 little-endian, in tensor table order]
//
// The JSON header carries the network architecture (opaque to this
// package), the tensor table, free-form metadata and optional checkpoint
// information.
//
// Example usage:
//
//	// Save
//	header := serialization.Header{ModelType: "network", Architecture: arch}
//	if err := serialization.WriteFile("model.nnet", header, tensors); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load
//	file, err := serialization.ReadFile("model.nnet", serialization.DefaultReaderOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range file.Tensors {
//	    fmt.Println(t.Name, t.Shape)
//	}
package serialization
