package main

import "github.com/SkyDragon00/ProyectoFinalProcesos/cmd"

func main() {
	cmd.Execute()
}
