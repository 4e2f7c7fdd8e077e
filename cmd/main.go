/*
 *  main.go
 *  cmd
 *
 *  Created by Haibao Tang on 03/11/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package main

import (
	"log"

	"github.com/op/go-logging"
	"github.com/tanghaibao/svgeno"
)

// main is the entrypoint for the entire program, routes to commands
func main() {
	logging.SetBackend(svgeno.BackendFormatter)
	err := svgeno.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
