package cmd

import (
	"fmt"

	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/fatih/color"
)

// printInfo prints a message to the screen.
func printInfo(message string) {
	color.New(color.FgGreen, color.Bold).Println("[+] " + message)
}

// printWarn prints a warning to the screen.
func printWarn(message string) {
	color.New(color.FgYellow, color.Bold).Println("[-] " + message)
}

// printError prints an error to the screen.
func printError(err error) {
	color.New(color.FgRed, color.Bold).Println("[!] " + err.Error())
}

// printDevice prints one scan result.
func printDevice(device ble.DiscoveredDevice) {
	name := device.Name
	if name == "" {
		name = "(unknown)"
	}

	fmt.Printf("%s  %-24s %4d dBm\n",
		color.New(color.FgCyan).Sprint(device.Address),
		name, device.RSSI,
	)
}

// printServices prints a discovered attribute tree.
func printServices(services []ble.Service) {
	for _, svc := range services {
		fmt.Println(color.New(color.FgCyan, color.Bold).Sprint(svc.UUID))

		for _, char := range svc.Characteristics {
			fmt.Printf("  %s [%s]\n", char.UUID, char.Properties)

			for _, desc := range char.Descriptors {
				fmt.Printf("    %s\n", desc.UUID)
			}
		}
	}
}
