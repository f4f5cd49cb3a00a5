// mcping queries one Minecraft server from the command line and prints its status.
package main

func main() {
	Execute()
}
