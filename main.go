// Command mimobft runs SU-MIMO beamforming training scenarios.
package main

import "github.com/sarchlab/mimobft/cmd"

func main() {
	cmd.Execute()
}
