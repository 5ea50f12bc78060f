// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/tohuynh/siglaci/cmd/siglaci"

func main() {
	cmd.Execute()
}
