// Package serialization stores fitted GP hyperparameters in the .born
// checkpoint format.
//
//	Layout:
//	  [0x00: 4 bytes   magic "BORN"]
//	  [0x04: 4 bytes   format version (uint32 LE)]
//	  [0x08: 4 bytes   flags (uint32 LE)]
//	  [0x0C: 8 bytes   JSON header size (uint64 LE)]
//	  [0x14: 12 bytes  reserved]
//	  [0x20: 32 bytes  SHA-256 of the tensor data section]
//	  [JSON header]
//	  [padding to a 64-byte boundary]
//	  [tensor data, little-endian, in header order]
//
// Only float32 and float64 tensors are stored. Tensors are written in
// sorted name order, so two saves of the same registry are byte-identical
// apart from the creation time in the header.
//
// Typical use goes through the registry helpers:
//
//	err := serialization.SaveFile("model.born", model.Registry(), serialization.Options{
//	    ModelType: "multitask_exact_gp",
//	})
//	...
//	hdr, err := serialization.LoadFile("model.born", model.Registry())
package serialization
