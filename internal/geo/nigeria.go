package geo

import "github.com/dukerupert/souk/internal/domain"

// State capitals stand in for state centroids.
var nigeriaStates = map[string]domain.Coordinates{
	"abia":        {Lat: 5.5250, Lng: 7.4942},
	"adamawa":     {Lat: 9.2035, Lng: 12.4954},
	"akwa ibom":   {Lat: 5.0377, Lng: 7.9128},
	"anambra":     {Lat: 6.2120, Lng: 7.0740},
	"bauchi":      {Lat: 10.3158, Lng: 9.8442},
	"bayelsa":     {Lat: 4.9267, Lng: 6.2676},
	"benue":       {Lat: 7.7322, Lng: 8.5391},
	"borno":       {Lat: 11.8311, Lng: 13.1510},
	"cross river": {Lat: 4.9757, Lng: 8.3417},
	"delta":       {Lat: 6.1980, Lng: 6.7319},
	"ebonyi":      {Lat: 6.3249, Lng: 8.1137},
	"edo":         {Lat: 6.3350, Lng: 5.6037},
	"ekiti":       {Lat: 7.6210, Lng: 5.2210},
	"enugu":       {Lat: 6.4584, Lng: 7.5464},
	"fct":         {Lat: 9.0765, Lng: 7.3986},
	"gombe":       {Lat: 10.2897, Lng: 11.1673},
	"imo":         {Lat: 5.4836, Lng: 7.0333},
	"jigawa":      {Lat: 11.7564, Lng: 9.3389},
	"kaduna":      {Lat: 10.5105, Lng: 7.4165},
	"kano":        {Lat: 12.0022, Lng: 8.5920},
	"katsina":     {Lat: 12.9908, Lng: 7.6018},
	"kebbi":       {Lat: 12.4539, Lng: 4.1975},
	"kogi":        {Lat: 7.8023, Lng: 6.7333},
	"kwara":       {Lat: 8.4966, Lng: 4.5421},
	"lagos":       {Lat: 6.6018, Lng: 3.3515},
	"nasarawa":    {Lat: 8.4939, Lng: 8.5153},
	"niger":       {Lat: 9.6139, Lng: 6.5569},
	"ogun":        {Lat: 7.1475, Lng: 3.3619},
	"ondo":        {Lat: 7.2571, Lng: 5.2058},
	"osun":        {Lat: 7.7827, Lng: 4.5418},
	"oyo":         {Lat: 7.3775, Lng: 3.9470},
	"plateau":     {Lat: 9.8965, Lng: 8.8583},
	"rivers":      {Lat: 4.8156, Lng: 7.0498},
	"sokoto":      {Lat: 13.0059, Lng: 5.2476},
	"taraba":      {Lat: 8.8937, Lng: 11.3596},
	"yobe":        {Lat: 11.7470, Lng: 11.9608},
	"zamfara":     {Lat: 12.1704, Lng: 6.6641},
}

var nigeriaStateAliases = map[string]string{
	"abuja":                     "fct",
	"f c t":                     "fct",
	"federal capital territory": "fct",
	"akwaibom":                  "akwa ibom",
	"crossriver":                "cross river",
	"nassarawa":                 "nasarawa",
}

var nigeriaCities = map[string]city{
	// Lagos
	"ikeja":           {state: "lagos", coords: domain.Coordinates{Lat: 6.6018, Lng: 3.3515}},
	"lekki":           {state: "lagos", coords: domain.Coordinates{Lat: 6.4698, Lng: 3.5852}},
	"victoria island": {state: "lagos", coords: domain.Coordinates{Lat: 6.4281, Lng: 3.4219}},
	"lagos island":    {state: "lagos", coords: domain.Coordinates{Lat: 6.4550, Lng: 3.3841}},
	"ikoyi":           {state: "lagos", coords: domain.Coordinates{Lat: 6.4520, Lng: 3.4350}},
	"surulere":        {state: "lagos", coords: domain.Coordinates{Lat: 6.5000, Lng: 3.3500}},
	"yaba":            {state: "lagos", coords: domain.Coordinates{Lat: 6.5095, Lng: 3.3711}},
	"ikorodu":         {state: "lagos", coords: domain.Coordinates{Lat: 6.6194, Lng: 3.5105}},
	"ajah":            {state: "lagos", coords: domain.Coordinates{Lat: 6.4670, Lng: 3.5660}},
	"epe":             {state: "lagos", coords: domain.Coordinates{Lat: 6.5841, Lng: 3.9834}},
	"badagry":         {state: "lagos", coords: domain.Coordinates{Lat: 6.4316, Lng: 2.8876}},
	// Ogun
	"abeokuta":  {state: "ogun", coords: domain.Coordinates{Lat: 7.1475, Lng: 3.3619}},
	"ota":       {state: "ogun", coords: domain.Coordinates{Lat: 6.6804, Lng: 3.2356}},
	"ijebu ode": {state: "ogun", coords: domain.Coordinates{Lat: 6.8194, Lng: 3.9173}},
	"sagamu":    {state: "ogun", coords: domain.Coordinates{Lat: 6.8322, Lng: 3.6319}},
	// Oyo
	"ibadan":    {state: "oyo", coords: domain.Coordinates{Lat: 7.3775, Lng: 3.9470}},
	"ogbomosho": {state: "oyo", coords: domain.Coordinates{Lat: 8.1335, Lng: 4.2401}},
	"oyo":       {state: "oyo", coords: domain.Coordinates{Lat: 7.8526, Lng: 3.9312}},
	// Osun, Ondo, Ekiti, Kwara
	"osogbo":    {state: "osun", coords: domain.Coordinates{Lat: 7.7827, Lng: 4.5418}},
	"ile ife":   {state: "osun", coords: domain.Coordinates{Lat: 7.4824, Lng: 4.5603}},
	"ilesa":     {state: "osun", coords: domain.Coordinates{Lat: 7.6273, Lng: 4.7418}},
	"akure":     {state: "ondo", coords: domain.Coordinates{Lat: 7.2571, Lng: 5.2058}},
	"ondo":      {state: "ondo", coords: domain.Coordinates{Lat: 7.0932, Lng: 4.8353}},
	"ado ekiti": {state: "ekiti", coords: domain.Coordinates{Lat: 7.6210, Lng: 5.2210}},
	"ilorin":    {state: "kwara", coords: domain.Coordinates{Lat: 8.4966, Lng: 4.5421}},
	"offa":      {state: "kwara", coords: domain.Coordinates{Lat: 8.1490, Lng: 4.7200}},
	// FCT and north central
	"abuja":      {state: "fct", coords: domain.Coordinates{Lat: 9.0579, Lng: 7.4951}},
	"gwagwalada": {state: "fct", coords: domain.Coordinates{Lat: 8.9430, Lng: 7.0837}},
	"kubwa":      {state: "fct", coords: domain.Coordinates{Lat: 9.1550, Lng: 7.3220}},
	"suleja":     {state: "niger", coords: domain.Coordinates{Lat: 9.1806, Lng: 7.1794}},
	"minna":      {state: "niger", coords: domain.Coordinates{Lat: 9.6139, Lng: 6.5569}},
	"bida":       {state: "niger", coords: domain.Coordinates{Lat: 9.0804, Lng: 6.0100}},
	"lokoja":     {state: "kogi", coords: domain.Coordinates{Lat: 7.8023, Lng: 6.7333}},
	"jos":        {state: "plateau", coords: domain.Coordinates{Lat: 9.8965, Lng: 8.8583}},
	"makurdi":    {state: "benue", coords: domain.Coordinates{Lat: 7.7322, Lng: 8.5391}},
	"lafia":      {state: "nasarawa", coords: domain.Coordinates{Lat: 8.4939, Lng: 8.5153}},
	// South south
	"port harcourt": {state: "rivers", coords: domain.Coordinates{Lat: 4.8156, Lng: 7.0498}},
	"bonny":         {state: "rivers", coords: domain.Coordinates{Lat: 4.4516, Lng: 7.1706}},
	"warri":         {state: "delta", coords: domain.Coordinates{Lat: 5.5167, Lng: 5.7500}},
	"asaba":         {state: "delta", coords: domain.Coordinates{Lat: 6.1980, Lng: 6.7319}},
	"benin city":    {state: "edo", coords: domain.Coordinates{Lat: 6.3350, Lng: 5.6037}},
	"uyo":           {state: "akwa ibom", coords: domain.Coordinates{Lat: 5.0377, Lng: 7.9128}},
	"eket":          {state: "akwa ibom", coords: domain.Coordinates{Lat: 4.6423, Lng: 7.9244}},
	"calabar":       {state: "cross river", coords: domain.Coordinates{Lat: 4.9757, Lng: 8.3417}},
	"yenagoa":       {state: "bayelsa", coords: domain.Coordinates{Lat: 4.9267, Lng: 6.2676}},
	// South east
	"enugu":     {state: "enugu", coords: domain.Coordinates{Lat: 6.4584, Lng: 7.5464}},
	"nsukka":    {state: "enugu", coords: domain.Coordinates{Lat: 6.8567, Lng: 7.3958}},
	"onitsha":   {state: "anambra", coords: domain.Coordinates{Lat: 6.1450, Lng: 6.7850}},
	"awka":      {state: "anambra", coords: domain.Coordinates{Lat: 6.2120, Lng: 7.0740}},
	"nnewi":     {state: "anambra", coords: domain.Coordinates{Lat: 6.0190, Lng: 6.9170}},
	"aba":       {state: "abia", coords: domain.Coordinates{Lat: 5.1066, Lng: 7.3667}},
	"umuahia":   {state: "abia", coords: domain.Coordinates{Lat: 5.5250, Lng: 7.4942}},
	"owerri":    {state: "imo", coords: domain.Coordinates{Lat: 5.4836, Lng: 7.0333}},
	"abakaliki": {state: "ebonyi", coords: domain.Coordinates{Lat: 6.3249, Lng: 8.1137}},
	// North
	"kano":      {state: "kano", coords: domain.Coordinates{Lat: 12.0022, Lng: 8.5920}},
	"kaduna":    {state: "kaduna", coords: domain.Coordinates{Lat: 10.5105, Lng: 7.4165}},
	"zaria":     {state: "kaduna", coords: domain.Coordinates{Lat: 11.0855, Lng: 7.7199}},
	"katsina":   {state: "katsina", coords: domain.Coordinates{Lat: 12.9908, Lng: 7.6018}},
	"sokoto":    {state: "sokoto", coords: domain.Coordinates{Lat: 13.0059, Lng: 5.2476}},
	"maiduguri": {state: "borno", coords: domain.Coordinates{Lat: 11.8311, Lng: 13.1510}},
	"bauchi":    {state: "bauchi", coords: domain.Coordinates{Lat: 10.3158, Lng: 9.8442}},
	"yola":      {state: "adamawa", coords: domain.Coordinates{Lat: 9.2035, Lng: 12.4954}},
}

var nigeriaCityAliases = map[string]string{
	"vi":      "victoria island",
	"v i":     "victoria island",
	"ph":      "port harcourt",
	"p h":     "port harcourt",
	"benin":   "benin city",
	"ife":     "ile ife",
	"ijebu":   "ijebu ode",
	"shagamu": "sagamu",
	"oshogbo": "osogbo",
}
