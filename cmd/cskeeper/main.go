// Cskeeper - declarative CloudStack resource keeper.
// Declare. Reconcile. Done.
package main

func main() {
	Execute()
}
