// Command sheetmatch serves the patient sheet comparator and runs comparisons from
// the command line.
package main

func main() {
	Execute()
}
