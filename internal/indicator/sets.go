package indicator

// Code-set names as published in the AHRQ PSI appendices
const (
	// Populations and shared groupings
	setSurgicalDRG  = "SURGI2R"
	setMedicalDRG   = "MEDIC2R"
	setLowMortality = "LOWMODR"
	setORProcedure  = "ORPROC"
	setMDC14Prin    = "MDC14PRINDX"
	setMDC15Prin    = "MDC15PRINDX"
	setPOAExempt    = "POAXMPD"

	// PSI-02
	setTrauma         = "TRAUMID"
	setCancer         = "CANCEID"
	setImmunocompDx   = "IMMUNID"
	setImmunocompProc = "IMMUNIP"

	// PSI-03
	setBurn        = "BURNDX"
	setExfoliative = "EXFOLIATXD"

	// PSI-04 strata
	setDVTPE          = "FTR2DXB"
	setObEmbolism     = "OBEMBOL"
	setPneumonia      = "FTR3DX"
	setPneumoniaExclA = "FTR3EXA"
	setPneumoniaExclB = "FTR3EXB"
	setLungCancerProc = "LUNGCIP"
	setSepsis04       = "FTR4DX"
	setInfection      = "INFECID"
	setShockDx        = "FTR5DX"
	setShockProc      = "FTR5PR"
	setShockExcl      = "FTR5EX"
	setGIHemorrhage   = "FTR6DX"
	setGIExcl         = "FTR6EX"
	setGIVarices      = "FTR6GV"
	setGIQualifier    = "FTR6QD"

	// PSI-05
	setForeignBody = "FOREIID"

	// PSI-06
	setIatrogenicPTX = "IATROID"
	setNonTraumPTX   = "IATPTXD"
	setChestTrauma   = "CTRAUMD"
	setPleuralEff    = "PLEURAD"
	setThoracicProc  = "THORAIP"
	setCardiacThorax = "CARDSIP"

	// PSI-07
	setCentralLine = "IDTMC3D"

	// PSI-08
	setFracture       = "FXID"
	setHipFracture    = "HIPFXID"
	setPeriprosthetic = "PROSFXID"

	// PSI-09
	setHemorrhage     = "POHMRI2D"
	setHemorrhageProc = "HEMOTH2P"
	setCoagulation    = "COAGDID"
	setMedBleeding    = "MEDBLEEDD"
	setThrombolytic   = "THROMBOLYTICP"

	// PSI-10
	setAKI           = "PHYSIDB"
	setCardiacArrest = "CARDIID"
	setDysrhythmia   = "CARDRID"
	setShock         = "SHOCKID"
	setCKD           = "CRENLFD"
	setUrinaryObs    = "URINARYOBSID"
	setDialysis      = "DIALYIP"
	setDialysisAcc   = "DIALY2P"
	setSolitaryKid   = "SOLKIDD"
	setNephrectomy   = "PNEPHREP"

	// PSI-11
	setRespFailure     = "ACURF2D"
	setRespFailureExcl = "ACURF3D"
	setTrachStatus     = "TRACHID"
	setMalignHyper     = "MALHYPD"
	setNeuromuscular   = "NEUROMD"
	setDegenNeuro      = "DGNEUID"
	setTracheostomy    = "TRACHIP"
	setCraniofacial    = "NUCRANP"
	setEsophageal      = "PRESOPP"
	setLungTransplant  = "LUNGTRANSP"
	setVentLong        = "PR9672P"
	setVentShort       = "PR9671P"
	setReintubation    = "PR9604P"

	// PSI-12
	setVenaCava  = "VENACIP"
	setThrombect = "THROMP"
	setDVT       = "DEEPVIB"
	setPE        = "PULMOID"
	setHIT       = "HITD"
	setNeuroTrau = "NEURTRAD"
	setECMO      = "ECMOP"

	// PSI-13
	setSepsis13           = "SEPTI2D"
	setSevereImmuneDx     = "SEVEREIMMUNEDX"
	setSevereImmuneProc   = "SEVEREIMMUNEPROC"
	setModerateImmuneDx   = "MODERATEIMMUNEDX"
	setModerateImmuneProc = "MODERATEIMMUNEPROC"
	setChemoRadiation     = "CHEMORADTXPROC"

	// PSI-14
	setAbdomOpen  = "ABDOMIPOPEN"
	setAbdomOther = "ABDOMIPOTHER"
	setReclosure  = "RECLOIP"
	setDisruption = "ABWALLCD"

	// PSI-15
	setAbdom15       = "ABDOMI15P"
	setComplexHigh   = "PCLASSHIGH"
	setComplexMedium = "PCLASSMODERATE"

	// PSI-16
	setTransfusion = "TRANFID"

	// PSI-17
	setNewborn  = "NEWBORN"
	setPreterm  = "PRETEID"
	setOsteogen = "OSTEOID"
	setBirthInj = "BIRTHID"

	// PSI-18, PSI-19
	setDelivery   = "DELOCMD"
	setVaginalDel = "VAGDELP"
	setInstrument = "INSTRIP"
	setOBTrauma   = "OBTRAID"
)

// pressureSite pairs a stage 3/4/unstageable ulcer set with the deep tissue
// injury set for the same anatomic site
type pressureSite struct {
	ulcer string
	dti   string
}

var pressureSites = []pressureSite{
	{"PIRELBOWD", "DTIRELBOEXD"},
	{"PILELBOWD", "DTILELBOEXD"},
	{"PIRUPBACKD", "DTIRUPBACEXD"},
	{"PILUPBACKD", "DTILUPBACEXD"},
	{"PIRLOBACKD", "DTIRLOBACEXD"},
	{"PILLOBACKD", "DTILLOBACEXD"},
	{"PISACRALD", "DTISACRAEXD"},
	{"PIRHIPD", "DTIRHIPEXD"},
	{"PILHIPD", "DTILHIPEXD"},
	{"PIRBUTTD", "DTIRBUTEXD"},
	{"PILBUTTD", "DTILBUTEXD"},
	{"PICONTIGBBHD", "DTICONTBBHEXD"},
	{"PIRANKLED", "DTIRANKLEXD"},
	{"PILANKLED", "DTILANKLEXD"},
	{"PIRHEELD", "DTIRHEELEXD"},
	{"PILHEELD", "DTILHEELEXD"},
	{"PIHEADD", "DTIHEADEXD"},
	{"PIOTHERD", "DTIOTHEREXD"},
}

// unspecifiedSiteUlcers have no laterality and therefore no DTI pairing
var unspecifiedSiteUlcers = []string{
	"PINELBOWD", "PINBACKD", "PINHIPD", "PINBUTTD", "PINANKLED", "PINHEELD", "PIUNSPECD",
}

// organSystem pairs an accidental puncture diagnosis set with the related
// procedure set for the same organ
type organSystem struct {
	name      string
	diagnosis string
	procedure string
}

var organSystems = []organSystem{
	{"SPLEEN", "SPLEEN15D", "SPLEEN15P"},
	{"ADRENAL", "ADRENAL15D", "ADRENAL15P"},
	{"VESSEL", "VESSEL15D", "VESSEL15P"},
	{"DIAPHRAGM", "DIAPHR15D", "DIAPHR15P"},
	{"GASTROINTESTINAL", "GI15D", "GI15P"},
	{"GENITOURINARY", "GU15D", "GU15P"},
}
