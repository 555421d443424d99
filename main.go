/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/acquisitions/apiserver/cmd"

func main() {
	cmd.Execute()
}
