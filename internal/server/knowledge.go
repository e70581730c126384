// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

// classes are the e-waste categories the deployed classifier knows.
var classes = []string{
	"Battery", "Keyboard", "Microwave", "Mobile", "Mouse",
	"PCB", "Player", "Printer", "Television", "Washing Machine",
}

// keywordClasses maps chat keywords to classes for canned answers.
var keywordClasses = map[string]string{
	"battery":         "Battery",
	"batteries":       "Battery",
	"keyboard":        "Keyboard",
	"microwave":       "Microwave",
	"mobile":          "Mobile",
	"phone":           "Mobile",
	"smartphone":      "Mobile",
	"mouse":           "Mouse",
	"circuit":         "PCB",
	"pcb":             "PCB",
	"player":          "Player",
	"printer":         "Printer",
	"television":      "Television",
	"tv":              "Television",
	"washing machine": "Washing Machine",
	"washer":          "Washing Machine",
}

// guidelines hold per-class disposal advice, condensed from the
// deployed service's knowledge base.
var guidelines = map[string]string{
	"Battery": `1. Never throw batteries in regular trash
2. Use designated battery recycling bins
3. Remove from devices before recycling
4. Keep different battery types separate
5. Tape terminal ends of lithium batteries`,

	"Keyboard": `1. Remove batteries if wireless
2. Separate plastic and circuit boards
3. Take to electronics recycling center
4. Consider donating if still functional
5. Check with manufacturer for recycling programs`,

	"Microwave": `1. Never dismantle it yourself; capacitors hold charge
2. Contact an appliance recycler
3. Ask your retailer about take-back on replacement
4. Donate if still working
5. Follow local large-appliance collection rules`,

	"Mobile": `1. Erase all personal data and remove SIM and memory cards
2. Remove the battery if possible
3. Use manufacturer or carrier trade-in programs
4. Donate working phones to charity programs
5. Otherwise take to a certified e-waste recycler`,

	"Mouse": `1. Remove batteries if wireless
2. Take to electronics recycling center
3. Bundle with other small peripherals
4. Donate if still functional
5. Keep cables with the device for recycling`,

	"PCB": `1. Handle as hazardous; boards contain heavy metals
2. Never incinerate or landfill circuit boards
3. Use a certified e-waste recycler for metal recovery
4. Keep boards intact; do not break them up
5. Follow local hazardous waste guidelines`,

	"Player": `1. Erase any stored personal media
2. Remove batteries before recycling
3. Donate working players
4. Take to electronics recycling center
5. Check manufacturer take-back programs`,

	"Printer": `1. Remove and recycle ink or toner cartridges separately
2. Many office stores accept printers for recycling
3. Check manufacturer take-back programs
4. Donate if still working
5. Otherwise take to a certified e-waste recycler`,

	"Television": `1. Never put a TV in regular trash; screens contain lead or mercury
2. Use municipal e-waste collection events
3. Ask your retailer about haul-away on replacement
4. Donate working sets
5. Transport screens upright to avoid breakage`,

	"Washing Machine": `1. Schedule a large-appliance pickup with your municipality
2. Ask your retailer about haul-away on replacement
3. Scrap metal recyclers accept washers
4. Donate if still working
5. Drain all water before transport`,
}

// guidelinesFor returns disposal guidelines for a class.
func guidelinesFor(class string) string {
	if g, ok := guidelines[class]; ok {
		return g
	}
	return "Guidelines not available for this type of e-waste."
}
