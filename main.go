/*
Copyright © 2026 THE SQLSAGE AUTHORS
*/
package main

import "github.com/sqlsage/sqlsage/cmd"

func main() {
	cmd.Execute()
}
