// Command goepp is an EPP registrar client.
package main

func main() {
	Execute()
}
