// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn exposes parameters, the parameter registry and priors.
//
// Every learnable component owns a Registry that maps a dotted name to a
// parameter and an optional prior. Composites include their children's
// registries under a prefix, and a sub-module shared by two parents keeps
// the first name it was registered under:
//
//	for _, e := range model.Registry().Entries() {
//	    fmt.Println(e.Name, e.Param.Data())
//	}
//
// Save and Load move a module's parameters to and from .born files.
package nn
