package buildinfo

const Graffiti = "______ ______   ___  \n|  ___||  _  \\ / _ \\ \n| |_   | | | |/ /_\\ \\\n|  _|  | | | ||  _  |\n| |    | |/ / | | | |\n\\_|    |___/  \\_| |_/\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "FDA"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
