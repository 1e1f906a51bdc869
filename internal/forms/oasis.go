package forms

import (
	"fmt"

	"github.com/yungbote/notescribe-backend/internal/schema"
)

// Section G: Functional Status. Code maps follow the OASIS-E item set;
// keys are the reportable codes, values the official response wording.

var m1800 = map[string]string{
	"0": "Able to groom self unaided, with or without the use of assistive devices or adapted methods.",
	"1": "Grooming utensils must be placed within reach before able to complete grooming activities.",
	"2": "Someone must assist the patient to groom self.",
	"3": "Patient depends entirely upon someone else for grooming needs.",
}

var m1810 = map[string]string{
	"0": "Able to get clothes out of closets and drawers, put them on and remove them from the upper body without assistance.",
	"1": "Able to dress upper body without assistance if clothing is laid out or handed to the patient.",
	"2": "Someone must help the patient put on upper body clothing.",
	"3": "Patient depends entirely upon another person to dress the upper body.",
}

var m1820 = map[string]string{
	"0": "Able to obtain, put on, and remove clothing and shoes without assistance.",
	"1": "Able to dress lower body without assistance if clothing and shoes are laid out or handed to the patient.",
	"2": "Someone must help the patient put on undergarments, slacks, socks or nylons, and shoes.",
	"3": "Patient depends entirely upon another person to dress lower body.",
}

var m1830 = map[string]string{
	"0": "Able to bathe self in shower or tub independently, including getting in and out of tub/shower.",
	"1": "With the use of devices, is able to bathe self in shower or tub independently, including getting in and out of the tub/shower.",
	"2": "Able to bathe in shower or tub with the intermittent assistance of another person: a. for intermittent supervision or encouragement or reminders, OR b. to get in and out of the shower or tub, OR c. for washing difficult to reach areas.",
	"3": "Able to participate in bathing self in shower or tub, but requires presence of another person throughout the bath for assistance or supervision.",
	"4": "Unable to use the shower or tub, but able to bathe self independently with or without the use of devices at the sink, in chair, or on commode.",
	"5": "Unable to use the shower or tub, but able to participate in bathing self in bed, at the sink, in bedside chair, or on commode, with the assistance or supervision of another person.",
	"6": "Unable to participate effectively in bathing and is bathed totally by another person.",
}

var m1840 = map[string]string{
	"0": "Able to get to and from the toilet and transfer independently with or without a device.",
	"1": "When reminded, assisted, or supervised by another person, able to get to and from the toilet and transfer.",
	"2": "Unable to get to and from the toilet but is able to use a bedside commode (with or without assistance).",
	"3": "Unable to get to and from the toilet or bedside commode but is able to use a bedpan/urinal independently.",
	"4": "Is totally dependent in toileting.",
}

var m1845 = map[string]string{
	"0": "Able to manage toileting hygiene and clothing management without assistance.",
	"1": "Able to manage toileting hygiene and clothing management without assistance if supplies/implements are laid out for the patient.",
	"2": "Someone must help the patient to maintain toileting hygiene and/or adjust clothing.",
	"3": "Patient depends entirely upon another person to maintain toileting hygiene.",
}

var m1850 = map[string]string{
	"0": "Able to independently transfer.",
	"1": "Able to transfer with minimal human assistance or with use of an assistive device.",
	"2": "Able to bear weight and pivot during the transfer process but unable to transfer self.",
	"3": "Unable to transfer self and is unable to bear weight or pivot when transferred by another person.",
	"4": "Bedfast, unable to transfer but is able to turn and position self in bed.",
	"5": "Bedfast, unable to transfer and is unable to turn and position self.",
}

var m1860 = map[string]string{
	"0": "Able to independently walk on even and uneven surfaces and negotiate stairs with or without railings (specifically: needs no human assistance or assistive device).",
	"1": "With the use of a one-handed device (for example, cane, single crutch, hemi-walker), able to independently walk on even and uneven surfaces and negotiate stairs with or without railings.",
	"2": "Requires use of a two-handed device (for example, walker or crutches) to walk alone on a level surface and/or requires human supervision or assistance to negotiate stairs or steps or uneven surfaces.",
	"3": "Able to walk only with the supervision or assistance of another person at all times.",
	"4": "Chairfast, unable to ambulate but is able to wheel self independently.",
	"5": "Chairfast, unable to ambulate and is unable to wheel self.",
	"6": "Bedfast, unable to ambulate or be up in a chair.",
}

var sectionGCodes = map[string]map[string]string{
	"M1800": m1800,
	"M1810": m1810,
	"M1820": m1820,
	"M1830": m1830,
	"M1840": m1840,
	"M1845": m1845,
	"M1850": m1850,
	"M1860": m1860,
}

var sectionGTitles = map[string]string{
	"M1800": "Grooming",
	"M1810": "Current Ability to Dress Upper Body",
	"M1820": "Current Ability to Dress Lower Body",
	"M1830": "Bathing",
	"M1840": "Toilet Transferring",
	"M1845": "Toileting Hygiene",
	"M1850": "Transferring",
	"M1860": "Ambulation/Locomotion",
}

func sectionGSchema() *schema.Node {
	return schema.Object(
		schema.F("M1800", schema.Nullable(schema.EnumFromCodes(m1800))),
		schema.F("M1810", schema.Nullable(schema.EnumFromCodes(m1810))),
		schema.F("M1820", schema.Nullable(schema.EnumFromCodes(m1820))),
		schema.F("M1830", schema.Nullable(schema.EnumFromCodes(m1830))),
		schema.F("M1840", schema.Nullable(schema.EnumFromCodes(m1840))),
		schema.F("M1845", schema.Nullable(schema.EnumFromCodes(m1845))),
		schema.F("M1850", schema.Nullable(schema.EnumFromCodes(m1850))),
		schema.F("M1860", schema.Nullable(schema.EnumFromCodes(m1860))),
	)
}

// Section GG: Functional Abilities.

var gg0100 = map[string]string{
	"3": "Independent - Patient completed all the activities by themself, with or without an assistive device, with no assistance from a helper.",
	"2": "Needed Some Help - Patient needed partial assistance from another person to complete any activities.",
	"1": "Dependent - A helper completed all the activities for the patient.",
	"8": "Unknown",
	"9": "Not Applicable",
}

var ggPerformance = map[string]string{
	"06": "Independent - Patient completes the activity by themself with no assistance from a helper.",
	"05": "Setup or clean-up assistance - Helper sets up or cleans up; patient completes activity. Helper assists only prior to or following the activity.",
	"04": "Supervision or touching assistance - Helper provides verbal cues and/or touching/steadying and/or contact guard assistance as patient completes activity.",
	"03": "Partial/moderate assistance - Helper does LESS THAN HALF the effort.",
	"02": "Substantial/maximal assistance - Helper does MORE THAN HALF the effort.",
	"01": "Dependent - Helper does ALL of the effort, or the assistance of 2 or more helpers is required.",
	"07": "Patient refused",
	"09": "Not applicable - Not attempted and the patient did not perform this activity prior to the current illness, exacerbation or injury.",
	"10": "Not attempted due to environmental limitations (e.g., lack of equipment, weather constraints)",
	"88": "Not attempted due to medical conditions or safety concerns",
}

var ggWheelchairType = map[string]string{
	"1": "Manual",
	"2": "Motorized",
}

var sectionGGCodes = map[string]map[string]string{
	"GG0100":         gg0100,
	"GG_PERFORMANCE": ggPerformance,
	"GG_WHEELCHAIR":  ggWheelchairType,
}

var sectionGGTitles = map[string]any{
	"GG0100": "Prior Functioning: Everyday Activities",
	"GG0110": "Prior Device Use",
	"GG0130": "Self-Care - SOC/ROC",
	"GG0170": "Mobility - SOC/ROC",
}

var sectionGGDescriptions = map[string]string{
	"GG0100": "Indicate the patient's usual ability with everyday activities prior to the current illness, exacerbation, or injury.",
	"GG0110": "Indicate devices and aids used by the patient prior to the current illness, exacerbation, or injury.",
	"GG0130": "Code the patient's usual performance at SOC/ROC for each self-care activity using the 6-point scale.",
	"GG0170": "Code the patient's usual performance at SOC/ROC for each mobility activity using the 6-point scale.",
}

func sectionGGSchema() *schema.Node {
	perf := schema.Nullable(schema.EnumFromCodes(ggPerformance))
	prior := schema.Nullable(schema.EnumFromCodes(gg0100))
	device := schema.Nullable(schema.Boolean())
	wheelchair := schema.Nullable(schema.EnumFromCodes(ggWheelchairType))

	mobilityFields := schema.Fields(
		[]string{"A", "B", "C", "D", "E", "F", "G", "I", "J", "K", "L", "M", "N", "O", "P"}, perf)
	mobilityFields = append(mobilityFields,
		schema.F("Q", schema.Nullable(schema.Enum("0", "1"))),
		schema.F("R", perf),
		schema.F("RR1", wheelchair),
		schema.F("S", perf),
		schema.F("SS1", wheelchair),
	)

	return schema.Object(
		schema.F("GG0100", schema.Object(schema.Fields([]string{"A", "B", "C", "D"}, prior)...)),
		schema.F("GG0110", schema.Object(schema.Fields([]string{"A", "B", "C", "D", "E", "Z"}, device)...)),
		schema.F("GG0130", schema.Object(
			schema.F("1", schema.Object(schema.Fields([]string{"A", "B", "C", "E", "F", "G", "H"}, perf)...)),
		)),
		schema.F("GG0170", schema.Object(
			schema.F("1", schema.Object(mobilityFields...)),
		)),
	)
}

func oasisSchema() *schema.Node {
	return schema.Object(
		schema.F("G", schema.Nullable(sectionGSchema())),
		schema.F("GG", schema.Nullable(sectionGGSchema())),
	)
}

func oasisPrompt() string {
	return fmt.Sprintf(`
- SECTION G (Functional Status)
Titles: %s
Codes/Values: %s
- SECTION GG (Functional Abilities)
Titles: %s
Descriptions: %s
Codes/Values: %s
`,
		mustJSON(sectionGTitles),
		mustJSON(sectionGCodes),
		mustJSON(sectionGGTitles),
		mustJSON(sectionGGDescriptions),
		mustJSON(sectionGGCodes),
	)
}
