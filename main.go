package main

import "github.com/pawcare/vetclinic_backend/cmd"

func main() {
	cmd.Execute()
}
