package conf

type Bootstrap struct {
	Server *Server `json:"server"`
	Brief  *Brief  `json:"brief"`
}

type Server struct {
	Http *HTTP `json:"http"`
}

type HTTP struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

// Brief 简报引擎配置；Config 指向 brief_agent 的 YAML 配置
type Brief struct {
	Config     string `json:"config"`
	JobTimeout string `json:"job_timeout"`
	MaxJobs    int32  `json:"max_jobs"`
}
