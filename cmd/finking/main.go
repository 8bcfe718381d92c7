// Command finking is the FinKing AI chat client and server.
package main

import "github.com/diogo/finking/internal/commands"

func main() {
	commands.Execute()
}
