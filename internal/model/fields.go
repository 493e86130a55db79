package model

import "strings"

// canonicalFields maps lowercase field names to the keys used in the
// Zotero API. Names not listed pass through unchanged so fields added by
// newer schema versions still surface.
var canonicalFields = map[string]string{
	"abstractnote":         "abstractNote",
	"accessdate":           "accessDate",
	"applicationnumber":    "applicationNumber",
	"archive":              "archive",
	"archiveid":            "archiveID",
	"archivelocation":      "archiveLocation",
	"artworkmedium":        "artworkMedium",
	"artworksize":          "artworkSize",
	"assignee":             "assignee",
	"audiofiletype":        "audioFileType",
	"audiorecordingformat": "audioRecordingFormat",
	"billnumber":           "billNumber",
	"blogtitle":            "blogTitle",
	"booktitle":            "bookTitle",
	"callnumber":           "callNumber",
	"casename":             "caseName",
	"citationkey":          "citationKey",
	"code":                 "code",
	"codenumber":           "codeNumber",
	"codepages":            "codePages",
	"codevolume":           "codeVolume",
	"committee":            "committee",
	"company":              "company",
	"conferencename":       "conferenceName",
	"country":              "country",
	"court":                "court",
	"date":                 "date",
	"datedecided":          "dateDecided",
	"dateenacted":          "dateEnacted",
	"dictionarytitle":      "dictionaryTitle",
	"distributor":          "distributor",
	"docketnumber":         "docketNumber",
	"documentnumber":       "documentNumber",
	"doi":                  "DOI",
	"edition":              "edition",
	"encyclopediatitle":    "encyclopediaTitle",
	"episodenumber":        "episodeNumber",
	"extra":                "extra",
	"filingdate":           "filingDate",
	"firstpage":            "firstPage",
	"format":               "format",
	"forumtitle":           "forumTitle",
	"genre":                "genre",
	"history":              "history",
	"identifier":           "identifier",
	"institution":          "institution",
	"interviewmedium":      "interviewMedium",
	"isbn":                 "ISBN",
	"issn":                 "ISSN",
	"issue":                "issue",
	"issuedate":            "issueDate",
	"issuingauthority":     "issuingAuthority",
	"journalabbreviation":  "journalAbbreviation",
	"label":                "label",
	"language":             "language",
	"legalstatus":          "legalStatus",
	"legislativebody":      "legislativeBody",
	"librarycatalog":       "libraryCatalog",
	"manuscripttype":       "manuscriptType",
	"maptype":              "mapType",
	"medium":               "medium",
	"meetingname":          "meetingName",
	"nameofact":            "nameOfAct",
	"network":              "network",
	"numberofvolumes":      "numberOfVolumes",
	"numpages":             "numPages",
	"number":               "number",
	"organization":         "organization",
	"pages":                "pages",
	"patentnumber":         "patentNumber",
	"place":                "place",
	"posttype":             "postType",
	"presentationtype":     "presentationType",
	"prioritynumbers":      "priorityNumbers",
	"proceedingstitle":     "proceedingsTitle",
	"programminglanguage":  "programmingLanguage",
	"programtitle":         "programTitle",
	"publiclawnumber":      "publicLawNumber",
	"publicationtitle":     "publicationTitle",
	"publisher":            "publisher",
	"references":           "references",
	"reportnumber":         "reportNumber",
	"reporttype":           "reportType",
	"reporter":             "reporter",
	"reportervolume":       "reporterVolume",
	"repository":           "repository",
	"repositorylocation":   "repositoryLocation",
	"rights":               "rights",
	"runningtime":          "runningTime",
	"scale":                "scale",
	"section":              "section",
	"series":               "series",
	"seriesnumber":         "seriesNumber",
	"seriestext":           "seriesText",
	"seriestitle":          "seriesTitle",
	"session":              "session",
	"shorttitle":           "shortTitle",
	"status":               "status",
	"studio":               "studio",
	"subject":              "subject",
	"system":               "system",
	"thesistype":           "thesisType",
	"title":                "title",
	"type":                 "type",
	"university":           "university",
	"url":                  "url",
	"versionnumber":        "versionNumber",
	"videorecordingformat": "videoRecordingFormat",
	"volume":               "volume",
	"websitetitle":         "websiteTitle",
	"websitetype":          "websiteType",
}

// CanonicalField returns the canonical key for a stored field name.
func CanonicalField(name string) string {
	if canonical, ok := canonicalFields[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

// SetField stores a field on the item, promoting well-known fields to
// their dedicated struct members.
func (i *Item) SetField(name, value string) {
	switch key := CanonicalField(name); key {
	case "title":
		i.Title = value
	case "abstractNote":
		i.AbstractNote = value
	case "date":
		i.Date = value
	case "url":
		i.URL = value
	case "DOI":
		i.DOI = value
	default:
		if i.Fields == nil {
			i.Fields = make(map[string]string)
		}
		i.Fields[key] = value
	}
}

// Field returns a field value by canonical key, whether promoted or not.
func (i *Item) Field(key string) string {
	switch key {
	case "title":
		return i.Title
	case "abstractNote":
		return i.AbstractNote
	case "date":
		return i.Date
	case "url":
		return i.URL
	case "DOI":
		return i.DOI
	}
	return i.Fields[key]
}
