package xsd

// Code generated by running "go generate" by hand; see builtin.go.

var _builtinNames = [...]string{
	AnyType:           "AnyType",
	AnySimpleType:     "AnySimpleType",
	ENTITIES:          "ENTITIES",
	ENTITY:            "ENTITY",
	ID:                "ID",
	IDREF:             "IDREF",
	IDREFS:            "IDREFS",
	NCName:            "NCName",
	NMTOKEN:           "NMTOKEN",
	NMTOKENS:          "NMTOKENS",
	NOTATION:          "NOTATION",
	Name:              "Name",
	QName:             "QName",
	AnyURI:            "AnyURI",
	Base64Binary:      "Base64Binary",
	Boolean:           "Boolean",
	Byte:              "Byte",
	Date:              "Date",
	DateTime:          "DateTime",
	Decimal:           "Decimal",
	Double:            "Double",
	Duration:          "Duration",
	Float:             "Float",
	GDay:              "GDay",
	GMonth:            "GMonth",
	GMonthDay:         "GMonthDay",
	GYear:             "GYear",
	GYearMonth:        "GYearMonth",
	HexBinary:         "HexBinary",
	Int:               "Int",
	Integer:           "Integer",
	Language:          "Language",
	Long:              "Long",
	NegativeInteger:   "NegativeInteger",
	NonNegativeInteger: "NonNegativeInteger",
	NonPositiveInteger: "NonPositiveInteger",
	NormalizedString:  "NormalizedString",
	PositiveInteger:   "PositiveInteger",
	Short:             "Short",
	String:            "String",
	Time:              "Time",
	Token:             "Token",
	UnsignedByte:      "UnsignedByte",
	UnsignedInt:       "UnsignedInt",
	UnsignedLong:      "UnsignedLong",
	UnsignedShort:     "UnsignedShort",
	XMLLang:           "XMLLang",
	XMLSpace:          "XMLSpace",
	XMLBase:           "XMLBase",
	XMLId:             "XMLId",
}

// String returns the Go identifier used for this Builtin in source
// above (e.g. "AnyURI"), not its lower-camel XSD name (use Name for that).
func (b Builtin) String() string {
	if b < 0 || int(b) >= len(_builtinNames) {
		return "Builtin(" + itoa(int(b)) + ")"
	}
	return _builtinNames[b]
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
