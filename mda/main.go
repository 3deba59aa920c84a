// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// mda is a microbiome data analyzer. It merges per-sample taxon abundance
// exports, resolves their taxonomy against NCBI Entrez or a local taxdump
// database, and performs diversity and group statistics.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCommand(nil).Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
