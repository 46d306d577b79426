package validator

import "strings"

const docBase = "https://standards.buildingsmart.org/IFC/RELEASE/IFC4/ADD2_TC1/HTML/schema/"

// chapterSlugs maps the clause number prefix of a documentation reference
// to the schema chapter directory of the published HTML documentation.
// Longer prefixes are listed first within a clause so the scan can stop at
// the first match.
var chapterSlugs = []struct {
	prefix string
	slug   string
}{
	{"5.1.", "ifckernel"},
	{"5.2.", "ifccontrolextension"},
	{"5.3.", "ifcprocessextension"},
	{"5.4.", "ifcproductextension"},
	{"6.1.", "ifcsharedbldgelements"},
	{"6.2.", "ifcsharedbldgserviceelements"},
	{"6.3.", "ifcsharedcomponentelements"},
	{"6.4.", "ifcsharedfacilitieselements"},
	{"6.5.", "ifcsharedmgmtelements"},
	{"7.1.", "ifcarchitecturedomain"},
	{"7.2.", "ifcbuildingcontrolsdomain"},
	{"7.3.", "ifcconstructionmgmtdomain"},
	{"7.4.", "ifcelectricaldomain"},
	{"7.5.", "ifchvacdomain"},
	{"7.6.", "ifcplumbingfireprotectiondomain"},
	{"7.7.", "ifcstructuralanalysisdomain"},
	{"7.8.", "ifcstructuralelementsdomain"},
	{"8.10.", "ifcmaterialresource"},
	{"8.11.", "ifcmeasureresource"},
	{"8.12.", "ifcpresentationappearanceresource"},
	{"8.13.", "ifcpresentationdefinitionresource"},
	{"8.14.", "ifcpresentationorganizationresource"},
	{"8.15.", "ifcprofileresource"},
	{"8.16.", "ifcpropertyresource"},
	{"8.17.", "ifcquantityresource"},
	{"8.18.", "ifcrepresentationresource"},
	{"8.19.", "ifcstructuralloadresource"},
	{"8.20.", "ifctopologyresource"},
	{"8.21.", "ifcutilityresource"},
	{"8.1.", "ifcactorresource"},
	{"8.2.", "ifcapprovalresource"},
	{"8.3.", "ifcconstraintresource"},
	{"8.4.", "ifccostresource"},
	{"8.5.", "ifcdatetimeresource"},
	{"8.6.", "ifcexternalreferenceresource"},
	{"8.7.", "ifcgeometricconstraintresource"},
	{"8.8.", "ifcgeometricmodelresource"},
	{"8.9.", "ifcgeometryresource"},
}

func chapterSlug(reference string) string {
	for _, c := range chapterSlugs {
		if strings.HasPrefix(reference, c.prefix) {
			return c.slug
		}
	}
	return ""
}

// docLink builds the documentation page URL for an entity. References
// outside the known clause numbering yield an empty link.
func docLink(reference, entityName string) string {
	slug := chapterSlug(reference)
	if slug == "" {
		return ""
	}
	return docBase + slug + "/lexical/" + strings.ToLower(entityName) + ".htm"
}
