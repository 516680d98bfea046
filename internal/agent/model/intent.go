package model

import "strings"

// Intent is a classification label produced by an intent call.
type Intent string

// Top-level intents.
const (
	IntentAzure           Intent = "Azure"
	IntentMultipleIntents Intent = "MultipleIntents"
	IntentStorage         Intent = "Storage"
	IntentInformation     Intent = "Information"
	IntentAbility         Intent = "Ability"
	IntentUnclear         Intent = "Unclear"
	IntentOther           Intent = "Other"
)

// Storage sub-intents.
const (
	IntentGeneralInformation Intent = "GeneralInformation"
	IntentStorageAccounts    Intent = "StorageAccounts"
	IntentStorageAccount     Intent = "StorageAccount"
)

// TopLevelIntents is the label set of the general classifier.
var TopLevelIntents = []Intent{
	IntentAzure, IntentMultipleIntents, IntentStorage, IntentInformation,
	IntentAbility, IntentUnclear, IntentOther,
}

// StorageIntents is the label set of the storage classifier.
var StorageIntents = []Intent{
	IntentGeneralInformation, IntentStorageAccounts, IntentStorageAccount,
	IntentMultipleIntents, IntentUnclear, IntentOther,
}

func (i Intent) String() string {
	return string(i)
}

// ParseIntent cleans a raw model answer and matches it case-insensitively
// against known. When nothing matches, the cleaned label is returned with
// ok=false so callers can still route on it.
func ParseIntent(raw string, known []Intent) (Intent, bool) {
	var label string
	for _, line := range strings.Split(raw, "\n") {
		if i := strings.Index(line, ":"); i >= 0 && strings.EqualFold(strings.TrimSpace(line[:i]), "intent") {
			line = line[i+1:]
		}
		if label = strings.Trim(line, labelCutset); label != "" {
			break
		}
	}
	for _, k := range known {
		if strings.EqualFold(label, string(k)) {
			return k, true
		}
	}
	return Intent(label), false
}

const labelCutset = "`\"'.:;!*[]() \t\r"
