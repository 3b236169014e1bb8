package main

import "gramcare-backend/cmd"

func main() {
	cmd.Execute()
}
