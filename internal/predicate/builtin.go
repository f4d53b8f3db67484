package predicate

// Service types used by the built-in vendor rules.
const (
	ServiceIPP    = "_ipp._tcp"
	ServicePrivet = "_privet._tcp"
)

// Page description languages accepted by the Mopria rule.
const (
	PDLPDF       = "application/pdf"
	PDLPCLm      = "application/PCLm"
	PDLPWGRaster = "image/pwg-raster"
)

// PrivetTypePrinter is the privet "type" value advertised by cloud printers.
const PrivetTypePrinter = "printer"

// CloudPrint matches privet devices whose type includes "printer".
func CloudPrint() Rule {
	return Rule{
		Kind:    KindAttributeContains,
		Service: ServicePrivet,
		Key:     AttrType,
		Accept:  []string{PrivetTypePrinter},
	}
}

// Mopria matches IPP printers advertising a Mopria-supported PDL.
func Mopria() Rule {
	return Rule{
		Kind:    KindAttributeContains,
		Service: ServiceIPP,
		Key:     AttrPDL,
		Accept:  []string{PDLPDF, PDLPCLm, PDLPWGRaster},
	}
}
