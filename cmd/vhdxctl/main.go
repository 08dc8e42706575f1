// Command vhdxctl inspects VHDX virtual hard disk files.
package main

func main() {
	execute()
}
